package http

import (
	"net/http"

	"budgetmate/internal/core"
	applog "budgetmate/internal/log"
)

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	goals, err := s.goals.List(ctx, user.ID)
	if err != nil {
		s.serverError(w, r, "Failed to list goals", err, applog.OpList)
		return
	}
	s.render(w, r, http.StatusOK, "goals.html", goalsPage{
		basePage: s.newBasePage(r, "Savings Goals", "goals"),
		Goals:    goals,
	})
}

func (s *Server) handleAddGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	in, ok := s.goalInput(w, r)
	if !ok {
		return
	}

	g, err := s.goals.Add(ctx, user.ID, in.Name, in.Target, in.Saved)
	if core.IsValidationError(err) {
		s.inputError(w, r, http.StatusUnprocessableEntity, core.ValidationMessage(err, "Invalid goal."))
		return
	}
	if err != nil {
		s.serverError(w, r, "Failed to add goal", err, applog.OpCreate)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Goal added", applog.FieldGoalID, g.ID)
	b := htmx().
		GoalsChanged().
		ResetForm().
		Notify(flashMessages["goaladded"])
	redirectAfterPost(w, r, b, "/goals?flash=goaladded")
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	id, err := parseID(r)
	if err != nil {
		s.inputError(w, r, http.StatusBadRequest, core.ValidationMessage(err, "Invalid id."))
		return
	}
	in, ok := s.goalInput(w, r)
	if !ok {
		return
	}

	err = s.goals.Update(ctx, user.ID, id, in.Name, in.Target, in.Saved)
	if core.IsValidationError(err) {
		s.inputError(w, r, http.StatusUnprocessableEntity, core.ValidationMessage(err, "Invalid goal."))
		return
	}
	if err != nil {
		s.serverError(w, r, "Failed to update goal", err, applog.OpUpdate)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Goal updated", applog.FieldGoalID, id)
	b := htmx().
		GoalsChanged().
		Notify(flashMessages["goalupdated"])
	redirectAfterPost(w, r, b, "/goals?flash=goalupdated")
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, _ := userFromContext(ctx)

	id, err := parseID(r)
	if err != nil {
		s.inputError(w, r, http.StatusBadRequest, core.ValidationMessage(err, "Invalid id."))
		return
	}
	if err := s.goals.Delete(ctx, user.ID, id); err != nil {
		s.serverError(w, r, "Failed to delete goal", err, applog.OpDelete)
		return
	}

	applog.FromContext(ctx).InfoContext(ctx, "Goal deleted", applog.FieldGoalID, id)
	b := htmx().
		GoalsChanged().
		Notify(flashMessages["goaldeleted"])
	redirectAfterPost(w, r, b, "/goals?flash=goaldeleted")
}

// goalInput parses a goal form, answering the request itself on failure.
func (s *Server) goalInput(w http.ResponseWriter, r *http.Request) (GoalInput, bool) {
	p, err := parseBody(r)
	if err != nil {
		s.inputError(w, r, http.StatusBadRequest, err.Error())
		return GoalInput{}, false
	}
	in, err := ParseGoalInput(p)
	if err != nil {
		s.inputError(w, r, http.StatusUnprocessableEntity, core.ValidationMessage(err, "Invalid goal."))
		return GoalInput{}, false
	}
	return in, true
}
