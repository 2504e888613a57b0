package gateway

import (
	"context"
	"fmt"
	nethttp "net/http"
	"net/url"

	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	httppkg "github.com/piresc/tirtha/internal/pkg/http"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/models"
	"github.com/piresc/tirtha/internal/utils"
)

type groupMembersResponse struct {
	GroupID   string   `json:"group_id"`
	MemberIDs []string `json:"member_ids"`
}

// HTTPGroupDirectory resolves group membership from the group service
type HTTPGroupDirectory struct {
	client *httppkg.APIKeyClient
}

// NewHTTPGroupDirectory creates a directory backed by client
func NewHTTPGroupDirectory(client *httppkg.APIKeyClient) *HTTPGroupDirectory {
	return &HTTPGroupDirectory{client: client}
}

// ResolveMembers fetches the member ids of groupID
func (d *HTTPGroupDirectory) ResolveMembers(ctx context.Context, groupID string) (*models.GroupMembership, error) {
	body, err := d.client.GetRaw(ctx, "/internal/groups/"+url.PathEscape(groupID)+"/members")
	if httppkg.IsStatus(err, nethttp.StatusNotFound) {
		return nil, apperrors.NotFound("group", groupID)
	}
	if err != nil {
		logger.ErrorCtx(ctx, "Failed to resolve group members",
			logger.String("group_id", groupID),
			logger.Err(err))
		return nil, fmt.Errorf("failed to resolve group members: %w", err)
	}

	var payload groupMembersResponse
	if err := utils.ParseJSONResponse(body, &payload); err != nil {
		return nil, err
	}

	logger.DebugCtx(ctx, "Resolved group members",
		logger.String("group_id", groupID),
		logger.Int("members", len(payload.MemberIDs)))
	return models.NewGroupMembership(groupID, payload.MemberIDs), nil
}
