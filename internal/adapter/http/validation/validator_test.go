package validation

import (
	"strings"
	"testing"

	. "github.com/onsi/gomega"

	"todoapi/internal/core/model/request"
)

func TestCreateTodoRequest_Validation(t *testing.T) {
	RegisterTestingT(t)

	text := "buy milk"
	Expect(Validator.Struct(request.CreateTodoRequest{Text: &text})).To(Succeed())

	errs := FormatValidationErrors(Validator.Struct(request.CreateTodoRequest{}))
	Expect(errs).To(HaveLen(1))
	Expect(errs[0].Field).To(Equal("text"))
	Expect(errs[0].Message).To(Equal("text is required"))
}

func TestCreateTodoRequest_AcceptsAnyText(t *testing.T) {
	RegisterTestingT(t)

	for _, text := range []string{"", " ", strings.Repeat("a", 5000)} {
		Expect(Validator.Struct(request.CreateTodoRequest{Text: &text})).To(Succeed(), "text %q", text)
	}
}

func TestUpdateTodoRequest_Validation(t *testing.T) {
	RegisterTestingT(t)

	Expect(Validator.Struct(request.UpdateTodoRequest{})).To(Succeed())

	text := "new text"
	Expect(Validator.Struct(request.UpdateTodoRequest{Text: &text})).To(Succeed())

	empty := ""
	Expect(Validator.Struct(request.UpdateTodoRequest{Text: &empty})).To(Succeed())
}

func TestFormatValidationErrors_NonValidationError(t *testing.T) {
	RegisterTestingT(t)

	Expect(FormatValidationErrors(nil)).To(BeEmpty())
}
