package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost — стоимость bcrypt для демо-таблицы логинов.
var PasswordCost = bcrypt.DefaultCost

// HashPassword возвращает bcrypt-хеш пароля.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// CheckPassword сравнивает хеш с паролем в открытом виде (побайтно, с учётом регистра).
func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
