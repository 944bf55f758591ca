package main

import (
	"fmt"
	"golang.org/x/crypto/bcrypt"
)

func generatePasswordHash(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// main prints a bcrypt hash for the default bootstrap operator password,
// used to seed the first row of the operators table during setup.
func main() {
	password := "ChangeMeOperator2026!"
	hash, _ := generatePasswordHash(password, 14)
	fmt.Println(hash)
}
