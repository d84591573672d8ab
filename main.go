/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
// @title           Stray API
// @version         1.0
// @description     REST API for reporting and rescuing stray cats
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and a JWT access token
package main

import "github.com/dutch3883/th-stray-sub000/cmd"

func main() {
	cmd.Execute()
}
