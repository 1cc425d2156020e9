package middleware

import (
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mobirepair/mobirepair-api/internal/testutil"
	"github.com/mobirepair/mobirepair-api/utils"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	testutil.EnsureTestEnvironment()
	gin.SetMode(gin.TestMode)
	utils.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}
