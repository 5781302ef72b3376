package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/krishhhh88/instadrive-backend/domain/dto"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "user_id"

// Auth validates an HS256 bearer token and stores its subject as the user id.
// Browsers opening an event stream cannot set headers, so access_token is accepted as a query fallback.
func Auth(secretKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		raw := bearer(ctx.Request.Header.Get("Authorization"))
		if raw == "" {
			raw = ctx.Query("access_token")
		}
		if raw == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		claims, err := getClaim(raw, secretKey)
		if err != nil {
			res.ResponseMessage = rejection(err)
			logger.GetLogger().WithField("error", err).Debug("Rejected user token")
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		if claims.Subject == "" {
			res.ResponseMessage = "Token has no subject"
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}

		ctx.Set(ContextUserID, claims.Subject)
		ctx.Next()
	}
}

func bearer(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func rejection(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		if ve.Errors&jwt.ValidationErrorMalformed != 0 {
			return "That's not even a token"
		}
		if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
			return "Timing is everything"
		}
	}
	return fmt.Sprintf("Couldn't handle this token:%v", err)
}

func getClaim(raw, secretKey string) (*model.UserClaims, error) {
	var claims model.UserClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}

// UserID returns the authenticated user id set by Auth.
func UserID(ctx *gin.Context) string {
	return ctx.GetString(ContextUserID)
}
