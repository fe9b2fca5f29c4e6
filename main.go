package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"bankcards/config"
	"bankcards/controllers"
	"bankcards/database"
	"bankcards/middleware"
	"bankcards/models"
	"bankcards/repository"
	"bankcards/services"
	"bankcards/utils"

	"github.com/gorilla/mux"
)

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем подключение к базе данных
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}

	// Инициализируем хранилища
	cardRepo := repository.NewGormCardRepository(db)
	userRepo := repository.NewGormUserRepository(db)

	// Инициализируем сервисы
	emailService := services.NewEmailService(cfg)
	userService := services.NewUserService(userRepo)
	cardService := services.NewCardService(cardRepo, userRepo, emailService)
	transferService := services.NewTransferService(cardRepo, emailService)

	// Инициализируем контроллеры
	authController := controllers.NewAuthController(userService, cfg)
	cardController := controllers.NewCardController(cardService, userService)
	userController := controllers.NewUserController(cardService, transferService, userService)

	// Создаем роутер
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.CORSMiddleware)

	// Ограничение частоты запросов
	limiter := utils.NewRateLimiter(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.Window)*time.Second)
	router.Use(middleware.RateLimit(limiter, cfg.RateLimit.Requests))

	// Публичные маршруты для аутентификации
	router.HandleFunc("/api/auth/signUp", authController.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", authController.SignIn).Methods("POST")

	// Защищенные маршруты
	protected := router.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(cfg.JWT.SecretKey)))
	protected.Use(middleware.LoggingMiddleware)

	// Маршруты текущего пользователя
	protected.HandleFunc("/cards/my-cards", userController.GetMyCards).Methods("GET")
	protected.HandleFunc("/cards/change-balance", userController.ChangeBalance).Methods("POST")
	protected.HandleFunc("/cards/block-request/{number}", userController.RequestBlock).Methods("PATCH")

	// Административные маршруты
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireRole(string(models.RoleAdmin)))

	admin.HandleFunc("/cards/create-card", cardController.CreateCard).Methods("POST")
	admin.HandleFunc("/cards/all", cardController.GetCards).Methods("GET")
	admin.HandleFunc("/cards/card-id/{id}", cardController.GetCardByID).Methods("GET")
	admin.HandleFunc("/cards/card-number/{number}", cardController.GetCardByNumber).Methods("GET")
	admin.HandleFunc("/cards/cards-userid/{userId}", cardController.GetCardsByUserID).Methods("GET")
	admin.HandleFunc("/cards/update-status-card-id/{cardId}", cardController.UpdateStatusByID).Methods("PATCH")
	admin.HandleFunc("/cards/update-status-card-number/{number}", cardController.UpdateStatusByNumber).Methods("PATCH")
	admin.HandleFunc("/cards/delete-card-id/{cardId}", cardController.DeleteCardByID).Methods("DELETE")
	admin.HandleFunc("/cards/delete-card-number/{number}", cardController.DeleteCardByNumber).Methods("DELETE")
	admin.HandleFunc("/cards/cards-blockrequest", cardController.GetCardsByBlockRequest).Methods("GET")
	admin.HandleFunc("/cards/filter-cards", cardController.FilterCards).Methods("GET")

	admin.HandleFunc("/users/all", userController.GetUsers).Methods("GET")
	admin.HandleFunc("/users/user-id/{id}", userController.GetUserByID).Methods("GET")
	admin.HandleFunc("/users/create-user", userController.CreateUser).Methods("POST")
	admin.HandleFunc("/users/filter-users", userController.FilterUsers).Methods("GET")

	// Метрики приложения
	admin.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(utils.GetMetrics().GetMetricsSnapshot())
	}).Methods("GET")

	// Запускаем сервер
	port := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на порту %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
