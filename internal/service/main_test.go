package service

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/devflow/backend/internal/models"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("devflow_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		log.Fatalf("Failed to start postgres container: %v", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Failed to get connection string: %v", err)
	}

	testDB, err = gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	err = testDB.AutoMigrate(
		&models.User{},
		&models.Question{},
		&models.Answer{},
		&models.Vote{},
		&models.Report{},
		&models.UserModeration{},
		&models.Warning{},
		&models.Suspension{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate test database: %v", err)
	}

	code := m.Run()

	if err := container.Terminate(ctx); err != nil {
		log.Printf("Failed to terminate container: %v", err)
	}
	os.Exit(code)
}

func resetDB(t *testing.T) {
	t.Helper()
	err := testDB.Exec(`TRUNCATE users, questions, answers, votes, reports,
		user_moderations, warnings, suspensions, notifications
		RESTART IDENTITY CASCADE`).Error
	if err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}
}

func createUser(t *testing.T, username string) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "hashed",
		Role:     models.RoleUser,
	}
	if err := testDB.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func createQuestion(t *testing.T, owner models.User) models.Question {
	t.Helper()
	question := models.Question{
		Title:       "How do I test this?",
		Description: "Looking for a way to test things properly.",
		Tags:        []string{"go", "testing"},
		OwnerID:     owner.ID,
	}
	if err := testDB.Create(&question).Error; err != nil {
		t.Fatalf("failed to create question: %v", err)
	}
	return question
}

func createAnswer(t *testing.T, question models.Question, owner models.User) models.Answer {
	t.Helper()
	answer := models.Answer{
		QuestionID: question.ID,
		OwnerID:    owner.ID,
		Body:       "Use a real database in your tests.",
	}
	if err := testDB.Create(&answer).Error; err != nil {
		t.Fatalf("failed to create answer: %v", err)
	}
	return answer
}

func voteSum(t *testing.T, answerID int) int {
	t.Helper()
	var sum *int
	err := testDB.Model(&models.Vote{}).Where("answer_id = ?", answerID).
		Select("SUM(value)").Scan(&sum).Error
	if err != nil {
		t.Fatalf("failed to sum votes: %v", err)
	}
	if sum == nil {
		return 0
	}
	return *sum
}

func answerByID(t *testing.T, id int) models.Answer {
	t.Helper()
	var answer models.Answer
	if err := testDB.First(&answer, id).Error; err != nil {
		t.Fatalf("failed to load answer %d: %v", id, err)
	}
	return answer
}
