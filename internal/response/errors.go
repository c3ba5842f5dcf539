package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation   ErrCode = "VALIDATION_ERROR"
	ErrInvalidSBD   ErrCode = "INVALID_SBD"
	ErrInvalidGroup ErrCode = "INVALID_GROUP"
	ErrInvalidLimit ErrCode = "INVALID_LIMIT"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrStudentNotFound ErrCode = "STUDENT_NOT_FOUND"
	ErrNotFound        ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Dữ liệu không hợp lệ. Vui lòng kiểm tra lại."
	case ErrInvalidSBD:
		return "SBD phải gồm đúng 8 chữ số."
	case ErrInvalidGroup:
		return "Khối thi không hợp lệ. Chỉ hỗ trợ khối A, B, C, D."
	case ErrInvalidLimit:
		return "Tham số limit phải từ 1 đến 100."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrStudentNotFound:
		return "Không tìm thấy thí sinh với SBD này."
	case ErrNotFound:
		return "Không tìm thấy tài nguyên yêu cầu."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Quá nhiều yêu cầu. Vui lòng thử lại sau."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Đã xảy ra lỗi máy chủ."
	default:
		return "Đã xảy ra lỗi không xác định."
	}
}
