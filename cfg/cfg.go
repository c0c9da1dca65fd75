package cfg

type (
	App struct {
		Name    string
		Version string
	}

	Mysql struct {
		Host                  string
		Port                  string
		Username              string
		Password              string
		MaxIdleConnection     int
		MaxOpenConnection     int
		MaxLifeTimeConnection int
		LocalInfile           bool
	}

	Kafka struct {
		Brokers  []string
		Producer KafkaProducer
		Consumer KafkaConsumer
	}

	KafkaProducer struct {
		TopicRows string
	}

	KafkaConsumer struct {
		GroupID string
	}

	Api struct {
		Port              string
		PageSizeDefault   int
		PageSizeMax       int
		RequestsPerSecond int
	}

	Stage struct {
		DataDir   string
		BatchSize int
		UseInfile bool
		Workers   int
		Files     map[string]string
	}

	Client struct {
		BaseUrl      string
		MinSearchLen int
		TimeoutSec   int
	}
)

type Config struct {
	App    App
	Mysql  Mysql
	Kafka  Kafka
	Api    Api
	Stage  Stage
	Client Client
}
