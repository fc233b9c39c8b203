package datastore

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pjbaur/pota-assistant/internal/errors"
)

// CreatePlan stores a new activation plan. The referenced park must already
// exist; a missing park is a not-found error, not a constraint violation.
func (ds *DataStore) CreatePlan(plan *Plan) error {
	if plan.Status == "" {
		plan.Status = PlanStatusDraft
	}
	if !ValidPlanStatus(plan.Status) {
		return validationError("invalid plan status", "status", plan.Status)
	}
	if plan.PlannedDate == "" {
		return validationError("planned date must not be blank", "planned_date", plan.PlannedDate)
	}
	if plan.PublicID == "" {
		plan.PublicID = uuid.NewString()
	}

	var count int64
	if err := ds.DB.Model(&Park{}).Where("id = ?", plan.ParkID).Count(&count).Error; err != nil {
		return dbError(err, "create_plan_check_park", "park_id", plan.ParkID)
	}
	if count == 0 {
		return notFoundError("park not found for plan",
			"run 'pota sync' to refresh the park dataset",
			"check the park reference spelling")
	}

	if err := ds.DB.Create(plan).Error; err != nil {
		return dbError(err, "create_plan", "park_id", plan.ParkID)
	}
	return nil
}

// GetPlan retrieves a plan by id with its park preloaded. A missing plan
// returns (nil, nil).
func (ds *DataStore) GetPlan(id uint) (*Plan, error) {
	var plan Plan
	err := ds.DB.Preload("Park").First(&plan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbError(err, "get_plan", "plan_id", id)
	}
	return &plan, nil
}

// ListPlans returns plans ordered by planned date, optionally filtered by
// status.
func (ds *DataStore) ListPlans(status string) ([]Plan, error) {
	if status != "" && !ValidPlanStatus(status) {
		return nil, validationError("invalid plan status", "status", status)
	}

	q := ds.DB.Preload("Park").Order("planned_date, planned_time")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var plans []Plan
	if err := q.Find(&plans).Error; err != nil {
		return nil, dbError(err, "list_plans", "status", status)
	}
	return plans, nil
}

// UpdatePlan applies a partial update: only non-nil fields of update change
// the stored row. UpdatedAt is refreshed on every mutation.
func (ds *DataStore) UpdatePlan(id uint, update *PlanUpdate) (*Plan, error) {
	var plan Plan
	err := ds.DB.First(&plan, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("plan not found", "list existing plans with 'pota plan list'")
		}
		return nil, dbError(err, "update_plan_fetch", "plan_id", id)
	}

	if update.Status != nil {
		if !ValidPlanStatus(*update.Status) {
			return nil, validationError("invalid plan status", "status", *update.Status)
		}
		plan.Status = *update.Status
	}
	if update.PlannedDate != nil {
		if *update.PlannedDate == "" {
			return nil, validationError("planned date must not be blank", "planned_date", *update.PlannedDate)
		}
		plan.PlannedDate = *update.PlannedDate
	}
	if update.PlannedTime != nil {
		plan.PlannedTime = *update.PlannedTime
	}
	if update.DurationHours != nil {
		plan.DurationHours = *update.DurationHours
	}
	if update.PresetID != nil {
		plan.PresetID = *update.PresetID
	}
	if update.Notes != nil {
		plan.Notes = *update.Notes
	}
	if update.ForecastSnapshot != nil {
		plan.ForecastSnapshot = *update.ForecastSnapshot
	}
	if update.ConditionsSnapshot != nil {
		plan.ConditionsSnapshot = *update.ConditionsSnapshot
	}

	if err := ds.DB.Save(&plan).Error; err != nil {
		return nil, dbError(err, "update_plan", "plan_id", id)
	}
	return &plan, nil
}

// DeletePlan removes a plan by id. Deleting a missing plan is a not-found
// error so callers can report it.
func (ds *DataStore) DeletePlan(id uint) error {
	result := ds.DB.Delete(&Plan{}, id)
	if result.Error != nil {
		return dbError(result.Error, "delete_plan", "plan_id", id)
	}
	if result.RowsAffected == 0 {
		return notFoundError("plan not found", "list existing plans with 'pota plan list'")
	}
	return nil
}
