package app

import (
	"studyhall/internal/cache"
	"studyhall/internal/repository"
	"studyhall/internal/service"
)

type App struct {
	SessionRepo  repository.SessionRepo
	MessageRepo  repository.MessageRepo
	QuizRepo     repository.QuizRepo
	UserRepo     repository.UserRepo
	SessionCache cache.SessionCache
	StatsCache   cache.StatsCache
	AuthService  *service.AuthService
	TutorService *service.TutorService
	Metrics      *service.Metrics
}
