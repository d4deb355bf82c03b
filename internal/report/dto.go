package report

import (
	"strconv"

	"github.com/smartinstall/field-reports/internal"
)

// WorkLogItemDTO is the interchange form of a work log line. Item IDs travel
// as strings for the benefit of the WebApp client; coefficient is optional.
type WorkLogItemDTO struct {
	ItemID      string   `json:"itemId"`
	Quantity    int      `json:"quantity"`
	Coefficient *float64 `json:"coefficient,omitempty"`
}

// ReportDTO is the transport shape of a report. Both completed and status are
// always populated so consumers that predate the status field keep working.
type ReportDTO struct {
	ID        *int64           `json:"id,omitempty"`
	UserID    int64            `json:"userId"`
	Date      string           `json:"date"`
	ObjectID  *string          `json:"objectId"`
	Completed bool             `json:"completed"`
	Status    string           `json:"status"`
	Earnings  int64            `json:"earnings"`
	WorkLog   []WorkLogItemDTO `json:"workLog"`
}

func ToDTO(r *Report) ReportDTO {
	workLog := make([]WorkLogItemDTO, 0, len(r.WorkLog))
	for _, entry := range r.WorkLog {
		item := WorkLogItemDTO{
			ItemID:   strconv.FormatInt(entry.ItemID, 10),
			Quantity: entry.Quantity,
		}
		if entry.Coefficient > 0 {
			coefficient := entry.Coefficient
			item.Coefficient = &coefficient
		}
		workLog = append(workLog, item)
	}

	var objectID *string
	if r.ObjectID != nil {
		s := strconv.FormatInt(*r.ObjectID, 10)
		objectID = &s
	}

	id := r.ID
	dto := ReportDTO{
		UserID:    r.UserID,
		Date:      r.Date,
		ObjectID:  objectID,
		Completed: r.Completed,
		Status:    r.Status,
		Earnings:  r.Earnings,
		WorkLog:   workLog,
	}
	if id != 0 {
		dto.ID = &id
	}
	return dto
}

func ToDTOSlice(reports []*Report) []ReportDTO {
	result := make([]ReportDTO, len(reports))
	for i, r := range reports {
		result[i] = ToDTO(r)
	}
	return result
}

// ParseWorkLog converts wire entries into domain entries, rejecting malformed
// item IDs and keeping only positive quantities.
func ParseWorkLog(items []WorkLogItemDTO) (WorkLog, error) {
	workLog := make(WorkLog, 0, len(items))
	for _, item := range items {
		itemID, err := strconv.ParseInt(item.ItemID, 10, 64)
		if err != nil || itemID <= 0 {
			return nil, internal.NewValidationFieldError("workLog", "invalid work log item id", internal.ErrCodeInvalidWorkLog)
		}
		if item.Quantity <= 0 {
			continue
		}
		entry := Entry{ItemID: itemID, Quantity: item.Quantity}
		if item.Coefficient != nil {
			if *item.Coefficient <= 0 {
				return nil, internal.NewValidationFieldError("workLog", "coefficient must be greater than 0", internal.ErrCodeInvalidWorkLog)
			}
			entry.Coefficient = *item.Coefficient
		}
		workLog = append(workLog, entry)
	}
	return workLog, nil
}

// ParseObjectID accepts a numeric string or null; anything else is dropped,
// matching the tolerant handling of the WebApp payloads.
func ParseObjectID(objectID *string) *int64 {
	if objectID == nil || *objectID == "" {
		return nil
	}
	id, err := strconv.ParseInt(*objectID, 10, 64)
	if err != nil || id <= 0 {
		return nil
	}
	return &id
}

// UpsertReportDTO covers both the draft save and the submit path; Submit
// decides which status the row ends in.
type UpsertReportDTO struct {
	UserID   int64            `json:"userId"`
	Date     string           `json:"date"`
	ObjectID *string          `json:"objectId"`
	Status   string           `json:"status,omitempty"`
	WorkLog  []WorkLogItemDTO `json:"workLog"`
}

func (dto UpsertReportDTO) Validate() error {
	if dto.UserID <= 0 {
		return internal.NewValidationFieldError("userId", "userId is required", internal.ErrCodeValidationFailed)
	}
	if !ValidDate(dto.Date) {
		return internal.NewValidationFieldError("date", "invalid date format, use YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	if dto.Status != "" && dto.Status != StatusDraft && dto.Status != StatusPendingApproval {
		return internal.NewValidationFieldError("status", "installer can only save draft or submit for approval", internal.ErrCodeInvalidStatus)
	}
	return nil
}

// EditReportDTO patches an existing report in place. Nil fields stay
// unchanged; an empty objectId clears the site assignment. Earnings are
// honored for admins only, everyone else gets them recomputed.
type EditReportDTO struct {
	ObjectID *string          `json:"objectId"`
	WorkLog  []WorkLogItemDTO `json:"workLog"`
	Status   *string          `json:"status"`
	Earnings *int64           `json:"earnings"`
}

func (dto EditReportDTO) Validate(actorAdmin bool) error {
	if dto.Status == nil {
		return nil
	}
	if actorAdmin {
		if !IsValidStatus(*dto.Status) {
			return internal.NewValidationFieldError("status", "invalid status", internal.ErrCodeInvalidStatus)
		}
		return nil
	}
	if *dto.Status != StatusDraft && *dto.Status != StatusPendingApproval {
		return internal.NewValidationFieldError("status", "installer can only save draft or submit for approval", internal.ErrCodeInvalidStatus)
	}
	return nil
}

// ApproveReportDTO optionally rewrites the work log before approval. The
// overrides map admin-adjusted coefficients onto existing lines.
type ApproveReportDTO struct {
	WorkLog      []WorkLogItemDTO   `json:"workLog,omitempty"`
	Coefficients map[string]float64 `json:"coefficients,omitempty"`
}

func (dto ApproveReportDTO) Validate() error {
	for itemID, coefficient := range dto.Coefficients {
		if _, err := strconv.ParseInt(itemID, 10, 64); err != nil {
			return internal.NewValidationFieldError("coefficients", "invalid item id in coefficient overrides", internal.ErrCodeInvalidWorkLog)
		}
		if coefficient <= 0 {
			return internal.NewValidationFieldError("coefficients", "coefficient must be greater than 0", internal.ErrCodeInvalidWorkLog)
		}
	}
	return nil
}

// ParseCoefficients converts the override keys to item IDs. Validate must
// have passed already.
func (dto ApproveReportDTO) ParseCoefficients() map[int64]float64 {
	if len(dto.Coefficients) == 0 {
		return nil
	}
	out := make(map[int64]float64, len(dto.Coefficients))
	for itemID, coefficient := range dto.Coefficients {
		id, err := strconv.ParseInt(itemID, 10, 64)
		if err != nil {
			continue
		}
		out[id] = coefficient
	}
	return out
}
