package jwt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	types "dashboard-cargo/internal/common/type"
	"dashboard-cargo/internal/pkg/helper"
	"dashboard-cargo/internal/pkg/logger"
	"dashboard-cargo/internal/pkg/validation"

	"github.com/golang-jwt/jwt/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	UserDataKey = "user_data"
)

var (
	secretMu sync.RWMutex
	secret   []byte
)

var (
	devSecretOnce sync.Once
	devSecret     []byte
)

// SetSecret overrides JWT_SECRET; main calls it with the loaded config.
func SetSecret(s string) {
	secretMu.Lock()
	defer secretMu.Unlock()
	secret = []byte(s)
}

func getJWTSecret() []byte {
	secretMu.RLock()
	s := secret
	secretMu.RUnlock()
	if len(s) > 0 {
		return s
	}

	if env := helper.GetEnv("JWT_SECRET"); env != "" {
		return []byte(env)
	}
	return processSecret()
}

// processSecret is a random per-process key for local runs without
// JWT_SECRET. Config validation refuses that setup outside development.
func processSecret() []byte {
	devSecretOnce.Do(func() {
		id, err := gonanoid.New(48)
		if err != nil {
			panic(fmt.Errorf("generate jwt secret: %w", err))
		}
		logger.Warning.Println("JWT_SECRET not set, using a random per-process secret")
		devSecret = []byte(id)
	})
	return devSecret
}

func GenerateToken(data types.UserWithAuth) (string, *time.Time) {
	var tokenDuration = 24 * time.Hour
	exp := time.Now().Add(tokenDuration)

	claims := jwt.MapClaims{
		"exp":       exp.Unix(),
		UserDataKey: data,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(getJWTSecret())
	if err != nil {
		return "", nil
	}

	return signedToken, &exp
}

func ValidateToken(jwtToken string) (*types.UserWithAuth, error) {
	token, err := jwt.Parse(jwtToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTSecret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims[UserDataKey] == nil {
		return nil, fmt.Errorf("user data not found in token claims")
	}

	userDataBytes, err := json.Marshal(claims[UserDataKey])
	if err != nil {
		return nil, fmt.Errorf("error marshalling user data: %v", err)
	}

	var userData types.UserWithAuth
	if err = json.Unmarshal(userDataBytes, &userData); err != nil {
		return nil, fmt.Errorf("error unmarshalling user data: %v", err)
	}

	if err = validation.Validate(userData); err != nil {
		return nil, err
	}

	logger.Debug.Printf("token accepted for operator %s", userData.ID)
	return &userData, nil
}
