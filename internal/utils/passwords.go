package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewMasterPassword - одноразовый мастер-пароль, если дефолтный не задан
// ни в настройках БД, ни в конфиге.
func NewMasterPassword() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("MP_%d_%s", time.Now().Unix(), suffix)
}
