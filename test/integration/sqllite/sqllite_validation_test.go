package sqllite

import (
	"testing"

	"github.com/RealZimboGuy/flowlint/test/integration/common"
)

func TestSqlLiteCanvasRepository(t *testing.T) {
	runTestWithSetup(t, func(t *testing.T, port int) {
		common.RunCanvasRepositoryScenario(t)
	})
}

func TestSqlLiteValidationAPI(t *testing.T) {
	runTestWithSetup(t, func(t *testing.T, port int) {
		common.RunValidationAPIScenario(t, port)
	})
}
