package validate_test

import (
	"fmt"
	"testing"

	"github.com/ardanlabs/blocksim/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type config struct {
	Name     string `json:"name" validate:"required"`
	Capacity int    `json:"capacity" validate:"gte=1,lte=10"`
	Internal int    `validate:"gte=0"`
}

func Test_Check(t *testing.T) {
	type table struct {
		name   string
		val    config
		fields []string
	}

	tt := []table{
		{name: "valid", val: config{Name: "node", Capacity: 5}},
		{name: "missing", val: config{Capacity: 5}, fields: []string{"name"}},
		{name: "range", val: config{Name: "node", Capacity: 11}, fields: []string{"capacity"}},
		{name: "both", val: config{Internal: -1}, fields: []string{"name", "capacity", "Internal"}},
	}

	t.Log("Given the need to validate config values.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s config.", testID, tst.name)
				{
					err := validate.Check(tst.val)
					if len(tst.fields) == 0 {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to validate the config: %s", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould be able to validate the config.", success, testID)
						return
					}

					if !validate.IsFieldErrors(err) {
						t.Fatalf("\t%s\tTest %d:\tShould get field errors: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould get field errors.", success, testID)

					fields := validate.GetFieldErrors(err).Fields()
					if len(fields) != len(tst.fields) {
						t.Fatalf("\t%s\tTest %d:\tShould get %d field errors, got %v", failed, testID, len(tst.fields), fields)
					}
					for _, name := range tst.fields {
						if _, exists := fields[name]; !exists {
							t.Fatalf("\t%s\tTest %d:\tShould get an error for %q, got %v", failed, testID, name, fields)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould get errors for %v.", success, testID, tst.fields)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_NotAStruct(t *testing.T) {
	err := validate.Check(10)
	if err == nil {
		t.Fatalf("\t%s\tShould get an error validating a non struct value.", failed)
	}
	if validate.IsFieldErrors(err) {
		t.Fatalf("\t%s\tShould not get field errors: %s", failed, err)
	}
	t.Logf("\t%s\tShould get an error validating a non struct value: %s", success, fmt.Sprint(err))
}
