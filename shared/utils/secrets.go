package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecretsDir - стандартный путь Docker Secrets. Переменная, чтобы тесты могли подменить каталог.
var SecretsDir = "/run/secrets"

// ReadSecret читает секрет из файла в каталоге Docker Secrets.
func ReadSecret(secretName string) (string, error) {
	filePath := filepath.Join(SecretsDir, secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}

// ReadSecretOrEnv сначала пробует Docker secret, затем переменные окружения по порядку.
// Возвращает пустую строку, если значение нигде не найдено.
func ReadSecretOrEnv(secretName string, envKeys ...string) string {
	if secret, err := ReadSecret(secretName); err == nil {
		return secret
	}
	for _, key := range envKeys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return ""
}
