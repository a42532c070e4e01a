// Package domain defines the entities of the training log.
//
// Ownership is a strict hierarchy: a User owns Sessions, a Session owns
// Exercises, an Exercise owns Sets. Deleting a parent cascades to all
// descendants.
package domain

// User is an account holder. The password field carries the credential
// digest and must never be serialized to a caller.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Session is a dated training session. A session is open (mutable) until
// it is closed; closing is a one-way transition.
type Session struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Date   string `json:"date"`
	Closed bool   `json:"closed"`
	// Legacy fields kept for older rows.
	Activity *string `json:"activity,omitempty"`
	Duration *int64  `json:"duration,omitempty"`
}

// Exercise belongs to a session.
type Exercise struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"session_id"`
	Name      string `json:"name"`
}

// Set is a single logged set of an exercise. Weight is optional.
type Set struct {
	ID         int64    `json:"id"`
	ExerciseID int64    `json:"exercise_id"`
	Reps       int64    `json:"reps"`
	Weight     *float64 `json:"weight"`
}

// ExerciseDetail is an exercise with its sets. Sets is never nil.
type ExerciseDetail struct {
	Exercise
	Sets []Set `json:"sets"`
}

// SessionDetail is a session with its exercises and their sets nested.
// Exercises is never nil; an exercise without sets carries an empty slice.
type SessionDetail struct {
	Session
	Exercises []ExerciseDetail `json:"exercises"`
}
