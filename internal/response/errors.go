package response

// ErrCode identifies an API error independently of its message.
type ErrCode string

const (
	// Validation
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidSort    ErrCode = "INVALID_SORT"
	ErrInvalidAvatar  ErrCode = "INVALID_AVATAR"
	ErrEmptyClassName ErrCode = "EMPTY_CLASS_NAME"
	ErrEmptyRoster    ErrCode = "EMPTY_ROSTER"

	// Roster
	ErrClassNotFound        ErrCode = "CLASS_NOT_FOUND"
	ErrStudentNotFound      ErrCode = "STUDENT_NOT_FOUND"
	ErrNoClassSelected      ErrCode = "NO_CLASS_SELECTED"
	ErrConfirmationRequired ErrCode = "CONFIRMATION_REQUIRED"
	ErrNoFeedback           ErrCode = "NO_FEEDBACK"

	// Picker
	ErrPickerBusy ErrCode = "PICKER_BUSY"

	// Import / export
	ErrInvalidSnapshot ErrCode = "INVALID_SNAPSHOT"
	ErrInvalidWorkbook ErrCode = "INVALID_WORKBOOK"
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrInternal          ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns the bilingual (Chinese / English) message for code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "輸入資料有誤 / Validation failed, please check your input."
	case ErrInvalidPayload:
		return "請求格式錯誤 / Invalid request payload."
	case ErrInvalidSort:
		return "不支援的排序方式 / Unsupported sort order."
	case ErrInvalidAvatar:
		return "頭像編號須介於 1 至 500 / Avatar id must be between 1 and 500."
	case ErrEmptyClassName:
		return "請輸入班級名稱 / Class name is required."
	case ErrEmptyRoster:
		return "請輸入至少一位學生 / Enter at least one student name."

	case ErrClassNotFound:
		return "找不到班級 / Class not found."
	case ErrStudentNotFound:
		return "找不到學生 / Student not found."
	case ErrNoClassSelected:
		return "請先選擇班級 / Select a class first."
	case ErrConfirmationRequired:
		return "確定刪除此班級？ / Delete this class? Confirmation required."
	case ErrNoFeedback:
		return "沒有可關閉的提示 / No feedback to dismiss."

	case ErrPickerBusy:
		return "正在抽選中 / The random picker is already running."

	case ErrInvalidSnapshot:
		return "匯入失敗，檔案格式錯誤 / Import failed: invalid file format."
	case ErrInvalidWorkbook:
		return "無法讀取 Excel 檔案 / The Excel file could not be read."
	case ErrFileRequired:
		return "請上傳檔案 / A file upload is required."
	case ErrFileTooLarge:
		return "檔案過大 / File exceeds the size limit."

	case ErrRateLimitExceeded:
		return "請求過於頻繁 / Too many requests, please try again later."
	case ErrNotFound:
		return "找不到資源 / Resource not found."
	case ErrInternal:
		return "伺服器錯誤 / Internal server error."
	default:
		return "發生未知錯誤 / An unexpected error occurred."
	}
}
