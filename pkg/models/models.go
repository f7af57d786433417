package models

import "time"

// Reminder is a due memory reminder pushed on /topic/reminders/{userId}
// and returned by the due-reminders fetch.
type Reminder struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	HasVoiceNote  bool      `json:"hasVoiceNote"`
	ReminderAt    time.Time `json:"reminderAt"`
	ReminderDaily bool      `json:"reminderDaily"`
	Read          bool      `json:"read"`
}

// RoutineNotification is a caregiver-authored prompt requiring a yes/no
// response. Only the newest one is ever shown.
type RoutineNotification struct {
	RoutineID   string    `json:"routineId"`
	Question    string    `json:"question"`
	DeliveredAt time.Time `json:"deliveredAt"`
}

type Routine struct {
	ID          string `json:"id"`
	Question    string `json:"question"`
	TimeOfDay   string `json:"timeOfDay"` // e.g. "09:00"
	RepeatDaily bool   `json:"repeatDaily"`
	PatientID   string `json:"patientId"`
	CreatedBy   string `json:"createdBy"`
}

// ChatMessage is immutable once created. ID is server-issued when the
// backend supports it; dedup falls back to (sender, createdAt).
type ChatMessage struct {
	ID        string    `json:"id,omitempty"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// LocationAlert is a danger alert raised for a patient judged away from
// their permanent location.
type LocationAlert struct {
	PatientID   string  `json:"patientId"`
	PatientName string  `json:"patientName"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Message     string  `json:"message"`
	Timestamp   string  `json:"timestamp"`
}

// SavedLocation is the caregiver-set permanent (safe/home) coordinate.
type SavedLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	SavedAt   string  `json:"savedAt,omitempty"`
}

type User struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	IsAlzheimer bool   `json:"isAlzheimer"`
}

type FamilyMember struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Memory struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	CustomCategory string    `json:"customCategory,omitempty"`
	HasVoiceNote   bool      `json:"hasVoiceNote"`
	CreatedAt      time.Time `json:"createdAt"`
}

type EmergencyContact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

type PhotoContact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	PhotoURL string `json:"photoUrl,omitempty"`
}
