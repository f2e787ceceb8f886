package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/s/coursePortal/internal/backup"
	"github.com/s/coursePortal/internal/database"
)

// Утилита бэкапа: снимает полный снапшот базы в каталог с таймштампом.
// Аргументов нет, настройка через переменные окружения.
func main() {
	_ = godotenv.Load()

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Ошибка инициализации логгера:", err)
	}
	defer zapLogger.Sync()
	sugar := zapLogger.Sugar()

	db, err := database.Connect(sugar)
	if err != nil {
		sugar.Fatalw("database connection failed", "error", err)
	}

	root := os.Getenv("BACKUP_DIR")
	if root == "" {
		root = "backups"
	}

	serializer := backup.NewSerializer(db, sugar)
	store := backup.NewStore(root)

	snap, err := serializer.BuildSnapshot(context.Background())
	if err != nil {
		sugar.Fatalw("snapshot build failed", "error", err)
	}

	dir, err := store.Write(snap)
	if err != nil {
		sugar.Fatalw("snapshot write failed", "dir", root, "error", err)
	}

	fmt.Println("Бэкап создан:", dir)
	printSummary(snap.Stats)
}

func printSummary(stats backup.Stats) {
	fmt.Printf("  курсы:               %d (модулей: %d, уроков: %d)\n", stats.Courses, stats.Modules, stats.Lessons)
	fmt.Printf("  пользователи:        %d\n", stats.Users)
	fmt.Printf("  записи на курсы:     %d\n", stats.UserCourses)
	fmt.Printf("  посты блога:         %d\n", stats.BlogPosts)
	fmt.Printf("  покупки мини-курсов: %d\n", stats.UserMiniCourses)
	fmt.Printf("  токены:              %d\n", stats.AuthTokens)
	fmt.Printf("  прогресс уроков:     %d\n", stats.UserLessonProgress)
}
