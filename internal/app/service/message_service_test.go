package service

import (
	"testing"

	"github.com/ikkim/dongnetalk-backend/internal/app/model"
	"github.com/ikkim/dongnetalk-backend/internal/app/repository"
	"github.com/ikkim/dongnetalk-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMessageServiceTest(t *testing.T) (MessageService, *model.User, *model.User) {
	testDB, err := db.SetupTestDB(t)
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(testDB)
	messageRepo := repository.NewMessageRepository(testDB)

	sender := &model.User{
		Email:          "sender@example.com",
		PasswordHash:   "hash",
		Name:           "Sender",
		EmailConfirmed: true,
		Role:           model.RoleUser,
	}
	require.NoError(t, userRepo.Create(sender))

	recipient := &model.User{
		Email:          "recipient@example.com",
		PasswordHash:   "hash",
		Name:           "Recipient",
		EmailConfirmed: true,
		Role:           model.RoleUser,
	}
	require.NoError(t, userRepo.Create(recipient))

	// 연결된 클라이언트가 없는 허브로도 전송은 동작해야 한다
	messageService := NewMessageService(messageRepo, userRepo, nil)

	return messageService, sender, recipient
}

func TestMessageService_SendMessage(t *testing.T) {
	svc, sender, recipient := setupMessageServiceTest(t)

	tests := []struct {
		name        string
		senderID    uint
		recipientID uint
		content     string
		wantErr     error
	}{
		{
			name:        "Valid message",
			senderID:    sender.ID,
			recipientID: recipient.ID,
			content:     "주말에 뵐까요?",
			wantErr:     nil,
		},
		{
			name:        "Message to self",
			senderID:    sender.ID,
			recipientID: sender.ID,
			content:     "메모",
			wantErr:     ErrSelfMessage,
		},
		{
			name:        "Unknown recipient",
			senderID:    sender.ID,
			recipientID: 9999,
			content:     "누구세요",
			wantErr:     ErrRecipientNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, err := svc.SendMessage(tt.senderID, tt.recipientID, tt.content)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, message)
			} else {
				require.NoError(t, err)
				require.NotNil(t, message)
				assert.Equal(t, tt.content, message.Content)
				assert.False(t, message.IsRead)
				// 발신자 정보가 함께 로드된다
				assert.Equal(t, sender.Email, message.Sender.Email)
			}
		})
	}
}

func TestMessageService_InboxAndSent(t *testing.T) {
	svc, sender, recipient := setupMessageServiceTest(t)

	for _, content := range []string{"one", "two", "three"} {
		_, err := svc.SendMessage(sender.ID, recipient.ID, content)
		require.NoError(t, err)
	}

	inbox, total, err := svc.GetInbox(recipient.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, inbox, 2)
	assert.Equal(t, "three", inbox[0].Content)

	sent, total, err := svc.GetSent(sender.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, sent, 3)

	// 발신자 입장에서는 받은 쪽지가 없다
	_, total, err = svc.GetInbox(sender.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestMessageService_MarkAsRead(t *testing.T) {
	svc, sender, recipient := setupMessageServiceTest(t)

	message, err := svc.SendMessage(sender.ID, recipient.ID, "read me")
	require.NoError(t, err)

	// 발신자는 읽음 처리 불가
	err = svc.MarkAsRead(message.ID, sender.ID)
	assert.ErrorIs(t, err, ErrMessageAccessDenied)

	require.NoError(t, svc.MarkAsRead(message.ID, recipient.ID))

	count, err := svc.GetUnreadCount(recipient.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// 존재하지 않는 메시지
	err = svc.MarkAsRead(9999, recipient.ID)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestMessageService_DeleteMessage(t *testing.T) {
	svc, sender, recipient := setupMessageServiceTest(t)

	message, err := svc.SendMessage(sender.ID, recipient.ID, "delete me")
	require.NoError(t, err)

	// 당사자가 아니면 삭제 불가
	err = svc.DeleteMessage(message.ID, 9999, false)
	assert.ErrorIs(t, err, ErrMessageAccessDenied)

	// 관리자는 당사자가 아니어도 삭제 가능
	require.NoError(t, svc.DeleteMessage(message.ID, 9999, true))

	err = svc.DeleteMessage(message.ID, recipient.ID, false)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	// 수신자도 자기 쪽지를 삭제할 수 있다
	message2, err := svc.SendMessage(sender.ID, recipient.ID, "another")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteMessage(message2.ID, recipient.ID, false))
}
