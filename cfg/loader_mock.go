package cfg

type MockLoader struct{}

func NewMockLoader() (*MockLoader, error) {
	return &MockLoader{}, nil
}

func (ml *MockLoader) Load() (*Config, error) {
	return &Config{
		// App
		App: App{
			Name:    "w4111-dataservice",
			Version: "0.0.1",
		},

		// Mysql
		Mysql: Mysql{
			Host:                  "127.0.0.1",
			Password:              "root",
			Username:              "root",
			Port:                  "3306",
			MaxIdleConnection:     10,
			MaxOpenConnection:     100,
			MaxLifeTimeConnection: 3600,
			LocalInfile:           true,
		},

		// Kafka
		Kafka: Kafka{
			Brokers: []string{"localhost:9092"},
			Producer: KafkaProducer{
				TopicRows: "dataservice.rows",
			},
			Consumer: KafkaConsumer{
				GroupID: "dataservice-row-writer",
			},
		},

		// Api
		Api: Api{
			Port:              "5000",
			PageSizeDefault:   20,
			PageSizeMax:       100,
			RequestsPerSecond: 50,
		},

		// Stage
		Stage: Stage{
			DataDir:   "data",
			BatchSize: 500,
			UseInfile: false,
			Workers:   4,
			Files:     map[string]string{},
		},

		// Client
		Client: Client{
			BaseUrl:      "http://127.0.0.1:5000",
			MinSearchLen: 5,
			TimeoutSec:   10,
		},
	}, nil
}
