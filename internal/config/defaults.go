package config

import "time"

const defaultPort = 8080

var defaultDB = DB{
	Host: "127.0.0.1",
	Port: "5432",
	User: "dispatch",
	Pass: "dispatch",
	Name: "dispatch",
}

var defaultKafka = Kafka{
	Topic:   "order-events",
	GroupID: "pharmadispatch",
}

var defaultDispatch = Dispatch{
	MaxActiveDeliveries: 3,
	SearchRadiusKm:      15,
}

var defaultFees = Fees{
	DeliveryBase:       200,
	DeliveryPerKm:      100,
	DeliveryMin:        300,
	DeliveryMax:        5000,
	ServiceEnabled:     true,
	ServicePct:         2,
	ServiceMin:         100,
	ServiceMax:         2000,
	PaymentEnabled:     true,
	PaymentFixed:       50,
	PaymentPct:         1.5,
	FallbackDistanceKm: 5,
}

var defaultCommission = Commission{
	Amount: 200,
}

var defaultNotify = Notify{
	MaxAttempts: 4,
	BaseDelay:   150 * time.Millisecond,
	MaxDelay:    2 * time.Second,
}

var defaultRateLimit = RateLimit{
	Enabled:    false,
	Rate:       20,
	Burst:      40,
	TTL:        10 * time.Minute,
	MaxBuckets: 10_000,
}

// DefaultPort returns the default port.
func DefaultPort() int { return defaultPort }

// DefaultDB returns the default database settings.
func DefaultDB() DB { return defaultDB }

// DefaultKafka returns the default order-event consumer settings.
func DefaultKafka() Kafka { return defaultKafka }

// DefaultDispatch returns the default courier matching settings.
func DefaultDispatch() Dispatch { return defaultDispatch }

// DefaultFees returns the default fee-calculator parameters.
func DefaultFees() Fees { return defaultFees }

// DefaultCommission returns the default settlement parameters.
func DefaultCommission() Commission { return defaultCommission }

// DefaultNotify returns the default push-gateway settings.
func DefaultNotify() Notify { return defaultNotify }

// DefaultRateLimit returns the default rate limiter settings.
func DefaultRateLimit() RateLimit { return defaultRateLimit }
