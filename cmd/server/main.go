package main

import "tgmarket/internal/app"

// @title           TG Market API
// @version         1.0
// @description     Сервис проверки и выкупа Telegram-аккаунтов: конвейер верификации, квоты стран, автоодобрение.

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @host      localhost:8080
// @BasePath  /
func main() {
	app.Run()
}
