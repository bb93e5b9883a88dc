package mysql

import (
	"testing"

	"github.com/RealZimboGuy/flowlint/test/integration/common"
)

func TestMySQLCanvasRepository(t *testing.T) {
	runTestWithSetup(t, func(t *testing.T, port int) {
		common.RunCanvasRepositoryScenario(t)
	})
}

func TestMySQLValidationAPI(t *testing.T) {
	runTestWithSetup(t, func(t *testing.T, port int) {
		common.RunValidationAPIScenario(t, port)
	})
}
