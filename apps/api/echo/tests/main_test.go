package tests

import (
	"os"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/xenthrall/academy/core"
	"github.com/xenthrall/academy/core/school"
)

var (
	validate   *validator.Validate
	translator ut.Translator
)

func TestMain(m *testing.M) {
	// set up validation once; validators are shared by every test server
	validate = validator.New()
	_en := en.New()
	translator, _ = ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	school.InitValidators(validate, translator)

	os.Exit(m.Run())
}
