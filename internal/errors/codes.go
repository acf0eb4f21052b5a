package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // 로그인 필요
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // 잘못된 이메일/비밀번호
	AuthSessionExpired     = "AUTH_SESSION_EXPIRED"     // 세션 만료
	AuthSessionInvalid     = "AUTH_SESSION_INVALID"     // 잘못된 세션
	AuthSessionRevoked     = "AUTH_SESSION_REVOKED"     // 로그아웃된 세션
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"        // 이메일 중복
	AuthEmailNotVerified   = "AUTH_EMAIL_NOT_VERIFIED"  // 이메일 미인증

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"     // 접근 권한 없음
	AuthzAccessDenied = "AUTHZ_ACCESS_DENIED" // 작업 권한 없음
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND" // 권한 정보 없음
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"    // 관리자만 가능

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput     = "VALIDATION_INVALID_INPUT"      // 잘못된 입력
	ValidationInvalidID        = "VALIDATION_INVALID_ID"         // 잘못된 ID 형식
	ValidationPasswordRequired = "VALIDATION_PASSWORD_REQUIRED"  // 비밀번호 누락
	ValidationPasswordMismatch = "VALIDATION_PASSWORD_MISMATCH"  // 비밀번호 확인 불일치
	ValidationPasswordTooShort = "VALIDATION_PASSWORD_TOO_SHORT" // 비밀번호 길이 부족

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 리소스 중복
	TokenNotFound         = "TOKEN_NOT_FOUND"         // 토큰 없음/만료/사용됨 (구분하지 않음)
	MessageNotFound       = "MESSAGE_NOT_FOUND"       // 쪽지 없음
	MessageSelfSend       = "MESSAGE_SELF_SEND"       // 자기 자신에게 쪽지 전송
	RecipientNotFound     = "RECIPIENT_NOT_FOUND"     // 받는 사람 없음

	// ==================== 내부 (INTERNAL_) ====================
	InternalServerError = "INTERNAL_SERVER_ERROR" // 서버 오류
	InternalExternalAPI = "INTERNAL_EXTERNAL_API" // 외부 서비스 오류
)
