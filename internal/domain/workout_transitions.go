package domain

// WorkoutAction is a command that may change a workout's status.
type WorkoutAction string

const (
	ActionComplete WorkoutAction = "complete"
	ActionSkip     WorkoutAction = "skip"
	ActionCancel   WorkoutAction = "cancel"
	ActionRate     WorkoutAction = "rate"
)

// workoutTransitions lists, per action, every status the action may start from
// and the status it leads to. A missing entry is a rejected transition.
// Skip and cancel are also allowed from completed. No action leads back to planned.
var workoutTransitions = map[WorkoutAction]map[WorkoutStatus]WorkoutStatus{
	ActionComplete: {
		WorkoutPlanned:  WorkoutCompleted,
		WorkoutSkipped:  WorkoutCompleted,
		WorkoutCanceled: WorkoutCompleted,
	},
	ActionSkip: {
		WorkoutPlanned:   WorkoutSkipped,
		WorkoutCompleted: WorkoutSkipped,
		WorkoutCanceled:  WorkoutSkipped,
	},
	ActionCancel: {
		WorkoutPlanned:   WorkoutCanceled,
		WorkoutCompleted: WorkoutCanceled,
		WorkoutSkipped:   WorkoutCanceled,
	},
	ActionRate: {
		WorkoutCompleted: WorkoutCompleted,
	},
}

// NextWorkoutStatus returns the status a workout in `from` moves to under action,
// and false when the transition is not allowed.
func NextWorkoutStatus(from WorkoutStatus, action WorkoutAction) (WorkoutStatus, bool) {
	to, ok := workoutTransitions[action][from]
	return to, ok
}
