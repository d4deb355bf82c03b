package postgres

import (
	"errors"

	reportDatamodel "github.com/smartinstall/field-reports/internal/core/datamodel/report"
	"github.com/smartinstall/field-reports/internal/report"
	"gorm.io/gorm"
)

// ReportRepository implements report.RepositoryAPI using GORM.
type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) report.RepositoryAPI {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) GetByID(id int64) (*reportDatamodel.ScheduledDay, error) {
	var day reportDatamodel.ScheduledDay
	if err := r.db.Preload("WorkLog").First(&day, id).Error; err != nil {
		return nil, err
	}
	return &day, nil
}

func (r *ReportRepository) GetByUserDate(userID int64, date string) (*reportDatamodel.ScheduledDay, error) {
	var day reportDatamodel.ScheduledDay
	err := r.db.Preload("WorkLog").
		Where("user_id = ? AND date = ?", userID, date).
		First(&day).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}

func (r *ReportRepository) List() ([]*reportDatamodel.ScheduledDay, error) {
	var days []*reportDatamodel.ScheduledDay
	if err := r.db.Preload("WorkLog").Order("date").Find(&days).Error; err != nil {
		return nil, err
	}
	return days, nil
}

func (r *ReportRepository) ListByUser(userID int64) ([]*reportDatamodel.ScheduledDay, error) {
	var days []*reportDatamodel.ScheduledDay
	err := r.db.Preload("WorkLog").
		Where("user_id = ?", userID).
		Order("date").
		Find(&days).Error
	if err != nil {
		return nil, err
	}
	return days, nil
}

func (r *ReportRepository) ListByStatus(status string) ([]*reportDatamodel.ScheduledDay, error) {
	var days []*reportDatamodel.ScheduledDay
	err := r.db.Preload("WorkLog").
		Where("status = ?", status).
		Order("date").
		Find(&days).Error
	if err != nil {
		return nil, err
	}
	return days, nil
}

func (r *ReportRepository) Create(day *reportDatamodel.ScheduledDay) error {
	return r.db.Create(day).Error
}

// Update writes the row and replaces its work log lines in one transaction,
// so a failed save never leaves a half-rewritten log behind.
func (r *ReportRepository) Update(day *reportDatamodel.ScheduledDay) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		items := day.WorkLog
		day.WorkLog = nil

		if err := tx.Model(&reportDatamodel.ScheduledDay{}).
			Where("id = ?", day.ID).
			Updates(map[string]interface{}{
				"object_id": day.ObjectID,
				"completed": day.Completed,
				"status":    day.Status,
				"earnings":  day.Earnings,
			}).Error; err != nil {
			return err
		}

		if err := tx.Where("scheduled_day_id = ?", day.ID).
			Delete(&reportDatamodel.WorkLogItem{}).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].ID = 0
			items[i].ScheduledDayID = day.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		day.WorkLog = items
		return nil
	})
}
