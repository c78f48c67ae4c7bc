package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// envPattern ${VAR} или ${VAR:-default}
var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnv подставляет переменные окружения. Пустая переменная считается неустановленной.
func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := envPattern.FindStringSubmatch(match)
		if v := os.Getenv(m[1]); v != "" {
			return v
		}
		return m[2]
	})
}

// expandEnvHook раскрывает подстановки в строковых значениях до приведения типов,
// поэтому "${PORT:-5001}" попадает в int-поле как 5001
func expandEnvHook(from reflect.Type, _ reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	return expandEnv(data.(string)), nil
}

// InitConfig читает файл конфигурации в структуру произвольного типа.
// Формат определяется по расширению файла.
func InitConfig[C any](configFile string) (*C, error) {
	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType(strings.TrimPrefix(filepath.Ext(configFile), "."))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configFile, err)
	}

	cfg := new(C)
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		expandEnvHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", configFile, err)
	}
	return cfg, nil
}
