package config

import "time"

type (

	// Config конфигурация программы
	Config struct {

		// Описание логирования
		Log struct {

			// Путь к файлу лога
			Path string

			// Имя файал логирования
			Filename string `required:"true" default:"liftmon.log"`

			// Уровень логирования
			Level string `required:"true" default:"warning"`

			// Выводить лог только на консоль
			Console bool `default:"false"`
		}

		// Журнал аномалий
		Db struct {

			// Путь к расположению базы данных
			Path string

			// Имя файла базы данных
			Filename string `required:"true" default:"liftmon.sqlite"`

			// Колличество дней хранения журнала аномалий
			ArchiveDays int `default:"30"`

			// Период очистки журнала до ArchiveDays в минутах
			CleanArchiveInterval int `default:"30"`
		}

		// Сбор и пакетная отправка аномалий
		Collector struct {

			// Идентификатор лифта
			ElevatorID string `required:"true" default:"EL-001"`

			// Период опроса состояния (в секундах)
			Interval time.Duration `default:"5"`

			// Размер пачки, при котором очередь отправляется сразу
			BatchSize int `default:"10"`

			// Максимальное время между отправками очереди (в секундах)
			FlushInterval time.Duration `default:"60"`

			// Таймаут отправки одной записи (в милисекундах)
			SendTimeout time.Duration `default:"10000"`
		}

		// Симуляция лифта
		Simulator struct {

			// Период шага симуляции (в милисекундах)
			Interval time.Duration `default:"2000"`

			// Количество этажей
			FloorCount int `default:"10"`

			// Вероятность выхода параметра за норму на шаге
			ExcursionProbability float64 `default:"0.05"`

			// Вероятность отказа подсистемы на шаге
			FaultProbability float64 `default:"0.005"`

			// Начальное значение генератора. 0 - от текущего времени
			Seed int64
		}

		// Сервер учёта аномалий
		Backend struct {

			// Адрес сервера, например http://127.0.0.1:8080
			URL string `required:"true" default:"http://127.0.0.1:8080"`

			// Таймаут ожидания ответа (в милисекундах)
			TimeOut time.Duration `default:"10000"`

			// Время жизни результата анализа подсистемы (в секундах)
			AnalysisCache time.Duration `default:"300"`
		}

		// Лента последних аномалий в Redis. Пустой адрес отключает ленту
		Redis struct {
			Addr     string
			Password string
			DB       int
		}

		// Обслуживание WEB-сервера
		Http struct {

			// Порт WEB-сервера
			Port uint `required:"true" default:"8080"`

			// Корень директории со статическим контентом
			AssetsDir string `default:"assets"`
		}
	}
)
