package service

import (
	"github.com/usenarra/narra-backend/internal/models"
	"github.com/usenarra/narra-backend/internal/repository"
)

type PlanService struct {
	planRepo *repository.PlanRepository
}

func NewPlanService(planRepo *repository.PlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

func (s *PlanService) GetActivePlans() ([]models.Plan, error) {
	return s.planRepo.GetActive()
}

func (s *PlanService) GetPlan(id uint) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}
