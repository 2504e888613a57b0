package tracking

import (
	"github.com/piresc/tirtha/internal/pkg/constants"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/piresc/tirtha/internal/pkg/models"
)

// Caller is the authenticated identity behind a request
type Caller struct {
	ActorID string
	Role    string
	GroupID string
}

// Privileged reports whether the caller may act on behalf of other actors
func (c Caller) Privileged() bool {
	return c.Role == constants.RoleAdmin || c.Role == constants.RoleOperator || c.Role == constants.RoleDevice
}

// ResolveActor returns the actor a write applies to. An empty requested id
// means the caller itself.
func (c Caller) ResolveActor(requested string) (string, error) {
	if requested == "" || requested == c.ActorID {
		return c.ActorID, nil
	}
	if !c.Privileged() {
		return "", apperrors.Forbidden("cannot act on behalf of actor %s", requested)
	}
	return requested, nil
}

// AuthorizeFeed checks that the caller may watch req. Operators see
// everything; other actors see single actors and their own group.
func (c Caller) AuthorizeFeed(req models.FeedRequest) error {
	if c.Role == constants.RoleAdmin || c.Role == constants.RoleOperator {
		return nil
	}
	switch req.Scope {
	case models.ScopeSingle:
		return nil
	case models.ScopeGroup:
		if req.Target != "" && req.Target == c.GroupID {
			return nil
		}
		return apperrors.Forbidden("not a member of group %s", req.Target)
	default:
		return apperrors.Forbidden("%s feed requires operator role", req.Scope)
	}
}
