package api

import (
	"context"
	"fmt"
	"net/url"

	"pma-companion/pkg/models"
)

type CreateRoutineRequest struct {
	Question    string `json:"question"`
	TimeOfDay   string `json:"timeOfDay"`
	RepeatDaily bool   `json:"repeatDaily"`
	PatientID   string `json:"patientId"`
	CreatedBy   string `json:"createdBy"`
}

func (c *Client) CreateRoutine(ctx context.Context, req CreateRoutineRequest) (*models.Routine, error) {
	if req.Question == "" || req.TimeOfDay == "" {
		return nil, fmt.Errorf("routine question and time are required")
	}
	if req.PatientID == "" {
		return nil, fmt.Errorf("routine patientId is required")
	}

	var routine models.Routine
	if err := c.postJSON(ctx, "/api/routines/create", req, &routine); err != nil {
		return nil, fmt.Errorf("failed to create routine: %w", err)
	}
	return &routine, nil
}

func (c *Client) RoutinesForPatient(ctx context.Context, patientID string) ([]models.Routine, error) {
	var routines []models.Routine
	if err := c.getJSON(ctx, "/api/routines/forPatient/"+url.PathEscape(patientID), &routines); err != nil {
		return nil, fmt.Errorf("failed to list patient routines: %w", err)
	}
	return routines, nil
}

func (c *Client) RoutinesByFamilyMember(ctx context.Context, familyMemberID string) ([]models.Routine, error) {
	var routines []models.Routine
	if err := c.getJSON(ctx, "/api/routines/family/"+url.PathEscape(familyMemberID), &routines); err != nil {
		return nil, fmt.Errorf("failed to list family routines: %w", err)
	}
	return routines, nil
}

func (c *Client) SharedRoutines(ctx context.Context, userID string) ([]models.Routine, error) {
	var routines []models.Routine
	if err := c.getJSON(ctx, "/api/routines/shared/"+url.PathEscape(userID), &routines); err != nil {
		return nil, fmt.Errorf("failed to list shared routines: %w", err)
	}
	return routines, nil
}

func (c *Client) DeleteRoutine(ctx context.Context, routineID, requestedBy string) error {
	path := "/api/routines/" + url.PathEscape(routineID) + "?requestedBy=" + url.QueryEscape(requestedBy)
	if err := c.delete(ctx, path); err != nil {
		return fmt.Errorf("failed to delete routine: %w", err)
	}
	return nil
}

// RespondToRoutine records the patient's YES/NO answer to a routine
// prompt.
func (c *Client) RespondToRoutine(ctx context.Context, routineID, response string) error {
	body := map[string]string{"response": response}
	if err := c.postJSON(ctx, "/api/routines/respond/"+url.PathEscape(routineID), body, nil); err != nil {
		return fmt.Errorf("failed to record routine response: %w", err)
	}
	return nil
}
