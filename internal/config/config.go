package config

import (
    "log"
    "os"

    "gopkg.in/yaml.v3"
)

type Config struct {
    Database struct {
        Host     string `yaml:"host"`
        Port     string `yaml:"port"`
        User     string `yaml:"user"`
        Password string `yaml:"password"`
        DBName   string `yaml:"dbname"`
        SSLMode  string `yaml:"sslmode"`
    } `yaml:"database"`
    Server struct {
        Port           string `yaml:"port"`
        TemplatePath   string `yaml:"template_path"`
        StaticPath     string `yaml:"static_path"`
        ProblemBaseURL string `yaml:"problem_base_url"` // пусто = URN-схема
    } `yaml:"server"`
}

// LoadConfig собирает конфигурацию из config.yaml и config.secret.yaml.
// Пароль БД живёт только в секретном файле; если файла нет, берётся
// PGPASSWORD из окружения (так проще в docker-compose).
func LoadConfig() *Config {
    config := &Config{}

    data, err := os.ReadFile("config.yaml")
    if err != nil {
        log.Fatalf("Ошибка чтения config.yaml: %v", err)
    }
    if err := yaml.Unmarshal(data, config); err != nil {
        log.Fatalf("Ошибка парсинга config.yaml: %v", err)
    }

    if config.Server.Port == "" {
        config.Server.Port = ":3000"
    }
    if config.Server.TemplatePath == "" {
        config.Server.TemplatePath = "./views"
    }
    if config.Server.StaticPath == "" {
        config.Server.StaticPath = "./static"
    }

    secretData, err := os.ReadFile("config.secret.yaml")
    if err == nil {
        var secret struct {
            Database struct {
                Password string `yaml:"password"`
            } `yaml:"database"`
        }
        if err := yaml.Unmarshal(secretData, &secret); err != nil {
            log.Fatalf("Ошибка парсинга config.secret.yaml: %v", err)
        }
        config.Database.Password = secret.Database.Password
    } else {
        config.Database.Password = os.Getenv("PGPASSWORD")
    }

    if config.Database.Password == "" {
        log.Fatal("Пароль БД не задан: нужен config.secret.yaml или PGPASSWORD")
    }

    log.Println("Конфигурация успешно загружена")
    return config
}
