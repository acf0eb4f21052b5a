package main

import (
	"fmt"
	"log"

	"github.com/ikkim/dongnetalk-backend/config"
	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/internal/app/repository"
	"github.com/ikkim/dongnetalk-backend/internal/db"
	"github.com/ikkim/dongnetalk-backend/pkg/util"
)

// 개발/데모용 시드 데이터: 인증 완료된 사용자 몇 명과 쪽지 몇 건을 생성한다

type seedUser struct {
	Name     string
	Email    string
	Password string
}

var seedUsers = []seedUser{
	{Name: "김민수", Email: "minsu@example.com", Password: "password1"},
	{Name: "이서연", Email: "seoyeon@example.com", Password: "password2"},
	{Name: "박지훈", Email: "jihun@example.com", Password: "password3"},
}

func main() {
	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// DB 연결
	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// 사용자 확인
	fmt.Print("Seed demo users and messages? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Seed cancelled.")
		return
	}

	userRepo := repository.NewUserRepository(db.GetDB())
	messageRepo := repository.NewMessageRepository(db.GetDB())

	users := make([]*model.User, 0, len(seedUsers))
	for _, su := range seedUsers {
		if existing, err := userRepo.FindByEmail(su.Email); err == nil {
			fmt.Printf("User already exists, skipping: %s\n", su.Email)
			users = append(users, existing)
			continue
		}

		hash, err := util.HashPassword(su.Password)
		if err != nil {
			log.Fatal("Failed to hash password:", err)
		}

		user := &model.User{
			Name:           su.Name,
			Email:          su.Email,
			PasswordHash:   hash,
			EmailConfirmed: true,
			Role:           model.RoleUser,
		}
		if err := userRepo.Create(user); err != nil {
			log.Fatal("Failed to create user:", err)
		}

		fmt.Printf("Created user: %s (%s)\n", user.Name, user.Email)
		users = append(users, user)
	}

	messages := []model.Message{
		{SenderID: users[0].ID, RecipientID: users[1].ID, Content: "서연님 안녕하세요! 이번 주말에 동네 모임 하실래요?"},
		{SenderID: users[1].ID, RecipientID: users[0].ID, Content: "좋아요! 토요일 오후 어때요?"},
		{SenderID: users[2].ID, RecipientID: users[0].ID, Content: "민수님, 지난번에 말씀하신 책 빌릴 수 있을까요?"},
	}

	for i := range messages {
		if err := messageRepo.Create(&messages[i]); err != nil {
			log.Fatal("Failed to create message:", err)
		}
	}

	fmt.Printf("Seed completed: %d users, %d messages\n", len(users), len(messages))
}
