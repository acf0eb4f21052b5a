package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
}

// ParseError 에러를 파싱하여 사용자 친화적인 메시지와 코드로 변환
// 보안상 민감한 정보는 숨기되, 사용자가 문제를 해결할 수 있는 정보 제공
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "서버 오류가 발생했습니다",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM 기본 에러
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL 에러 파싱

	// 2-1. Unique constraint violation (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	// 2-2. Foreign key constraint violation (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "연결된 데이터를 찾을 수 없습니다",
		}
	}

	// 2-3. Not null constraint violation (23502)
	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "필수 입력값이 누락되었습니다",
		}
	}

	// 3. 네트워크/연결 에러
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "외부 서비스 연결에 실패했습니다. 잠시 후 다시 시도해주세요",
		}
	}

	// 4. 기본 내부 서버 오류
	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

// parseDuplicateKeyError Unique constraint 위반 에러 파싱
func parseDuplicateKeyError(errStr string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	// 이메일 중복
	if strings.Contains(errLower, "email") || strings.Contains(errLower, "idx_users_email") {
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "이미 사용 중인 이메일입니다",
		}
	}

	// 메일 토큰 중복 (crypto/rand 충돌은 사실상 발생하지 않음)
	if strings.Contains(errLower, "mail_tokens") || strings.Contains(errLower, "idx_mail_tokens_token") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "요청 처리 중 오류가 발생했습니다. 다시 시도해주세요",
		}
	}

	// Primary key 중복
	if strings.Contains(errLower, "pkey") || strings.Contains(errLower, "primary key") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "이미 존재하는 데이터입니다. 다시 시도해주세요",
		}
	}

	// 기본 중복 메시지
	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "이미 존재하는 데이터입니다",
	}
}

// getNotFoundMessage context에 따른 Not Found 메시지
func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "user") || strings.Contains(contextLower, "사용자") {
		return "사용자를 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "message") || strings.Contains(contextLower, "쪽지") {
		return "쪽지를 찾을 수 없습니다"
	}
	if strings.Contains(contextLower, "token") || strings.Contains(contextLower, "토큰") {
		return "유효하지 않은 링크입니다"
	}

	return "요청한 데이터를 찾을 수 없습니다"
}

// getDefaultErrorMessage context에 따른 기본 에러 메시지
func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	if strings.Contains(contextLower, "create") || strings.Contains(contextLower, "register") || strings.Contains(contextLower, "등록") {
		return "등록 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "update") || strings.Contains(contextLower, "수정") {
		return "수정 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
	if strings.Contains(contextLower, "delete") || strings.Contains(contextLower, "삭제") {
		return "삭제 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}

	return "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
}

// ParseAndRespond 에러를 파싱하여 응답 반환 (헬퍼 함수)
// controller에서 간편하게 사용할 수 있도록
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
