package publicregister

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCommentsTTL bounds how stale served register comments may be.
const DefaultCommentsTTL = 5 * time.Minute

// CommentsService serves consultation comments for a case with a
// read-through Redis cache in front of the gateway, since the external
// register rate-limits comment queries far below case-file page traffic.
type CommentsService struct {
	gateway Gateway
	cache   *redis.Client
	ttl     time.Duration
	logger  *slog.Logger
}

// NewCommentsService constructs the service. cache may be nil, in which
// case every read goes to the gateway.
func NewCommentsService(gateway Gateway, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *CommentsService {
	if ttl <= 0 {
		ttl = DefaultCommentsTTL
	}
	return &CommentsService{gateway: gateway, cache: cache, ttl: ttl, logger: logger}
}

func commentsKey(caseReference string) string {
	return "register:comments:" + caseReference
}

// Get returns the case's consultation comments, from cache when fresh.
// Cache faults degrade to a gateway read rather than failing the request.
func (s *CommentsService) Get(ctx context.Context, caseReference string) ([]CaseComment, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, commentsKey(caseReference)).Bytes()
		if err == nil {
			var cached []CaseComment
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			s.logger.WarnContext(ctx, "comment cache read failed",
				"case_reference", caseReference, "error", err)
		}
	}

	comments, err := s.gateway.GetCaseCommentsByCaseReference(ctx, caseReference)
	if err != nil {
		return nil, fmt.Errorf("fetch register comments: %w", err)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(comments); err == nil {
			if err := s.cache.Set(ctx, commentsKey(caseReference), raw, s.ttl).Err(); err != nil {
				s.logger.WarnContext(ctx, "comment cache write failed",
					"case_reference", caseReference, "error", err)
			}
		}
	}
	return comments, nil
}
