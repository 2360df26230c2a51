package middleware

import (
	"errors"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	apperrors "homesteer/internal/errors"
	"homesteer/internal/services"
)

// ActorKey holds the *services.ActorContext resolved by ActorMiddleware.
const ActorKey = "actor"

// ActorMiddleware resolves the authenticated user to their room membership.
// Routes behind it may assume the caller belongs to an active room.
// It must run after AuthMiddleware.
func ActorMiddleware(memberships services.MembershipServicer) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey)
		if userID == "" {
			abortUnauthorized(c, "Authentication required")
			return
		}

		actor, err := memberships.ResolveActor(userID)
		if err != nil {
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) {
				appErr = apperrors.ErrInternalServer
			}
			c.AbortWithStatusJSON(appErr.StatusCode, gin.H{
				"error": gin.H{"code": appErr.Code, "message": appErr.Message},
			})
			return
		}

		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.Scope().SetUser(sentry.User{ID: actor.User.ID, Username: actor.User.Username})
			hub.Scope().SetTag("room", actor.Room.Slug)
		}

		c.Set(ActorKey, actor)
		c.Next()
	}
}
