package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/s/coursePortal/internal/backup"
	"github.com/s/coursePortal/internal/database"
)

// Утилита восстановления: проигрывает снапшот обратно в базу.
// Требует дословного подтверждения с клавиатуры, перед удалением
// данных снимает страховочный бэкап текущего состояния.
func main() {
	_ = godotenv.Load()

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "Использование: restore <каталог снапшота>")
		os.Exit(1)
	}
	snapshotDir := os.Args[1]

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
	restorer := backup.NewRestorer(db, serializer, store, stdinConfirm, sugar)

	result, err := restorer.Run(context.Background(), snapshotDir)
	if errors.Is(err, backup.ErrConfirmationDeclined) {
		fmt.Println("Восстановление отменено оператором, данные не тронуты.")
		return
	}
	if err != nil {
		if result != nil && result.SafetyBackupDir != "" {
			fmt.Fprintln(os.Stderr, "Страховочный бэкап сохранён:", result.SafetyBackupDir)
		}
		sugar.Fatalw("restore failed", "state", result.State, "error", err)
	}

	fmt.Println("Восстановление завершено.")
	fmt.Println("Страховочный бэкап:", result.SafetyBackupDir)
	fmt.Printf("  курсы:               %d (модулей: %d, уроков: %d)\n", result.Stats.Courses, result.Stats.Modules, result.Stats.Lessons)
	fmt.Printf("  пользователи:        %d\n", result.Stats.Users)
	fmt.Printf("  записи на курсы:     %d\n", result.Stats.UserCourses)
	fmt.Printf("  посты блога:         %d\n", result.Stats.BlogPosts)
	fmt.Printf("  токены:              %d\n", result.Stats.AuthTokens)
	fmt.Printf("  прогресс уроков:     %d\n", result.Stats.UserLessonProgress)
}

func stdinConfirm(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
