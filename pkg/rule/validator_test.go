package rule_test

import (
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/yeisme/filedock/pkg/rule"
)

type resourceTypeSpec struct {
	Name    string   `rule:"required"`
	MaxSize string   `rule:"byte_size"`
	Allowed []string `rule:"dive,file_ext"`
}

// TestEngine 测试 Engine 函数返回非 nil 实例.
func TestEngine(t *testing.T) {
	if rule.Engine() == nil {
		t.Error("Engine() returned nil")
	}
}

func TestValidateStruct(t *testing.T) {
	valid := resourceTypeSpec{Name: "Images", MaxSize: "2MB", Allowed: []string{"png", "jpg"}}
	if err := rule.ValidateStruct(valid); err != nil {
		t.Errorf("Expected no error for valid struct, got %v", err)
	}

	cases := map[string]resourceTypeSpec{
		"missing name": {MaxSize: "2MB"},
		"bad size":     {Name: "Files", MaxSize: "lots"},
		"dotted ext":   {Name: "Files", Allowed: []string{".png"}},
	}
	for name, c := range cases {
		if err := rule.ValidateStruct(c); err == nil {
			t.Errorf("%s: expected error, got nil", name)
		}
	}
}

func TestValidateVar(t *testing.T) {
	for _, ok := range []string{"", "0", "512K", "10MB", "1 GiB"} {
		if err := rule.ValidateVar(ok, "byte_size"); err != nil {
			t.Errorf("byte_size(%q): unexpected error %v", ok, err)
		}
	}

	if err := rule.ValidateVar("/docs/", "folder_path"); err != nil {
		t.Errorf("folder_path: unexpected error %v", err)
	}

	for _, bad := range []string{"docs/", "/docs", "/a/../b/"} {
		if err := rule.ValidateVar(bad, "folder_path"); err == nil {
			t.Errorf("folder_path(%q): expected error", bad)
		}
	}

	for _, ok := range []string{"global", "IP", "role", "header:X-Tenant"} {
		if err := rule.ValidateVar(ok, "ratelimit_key"); err != nil {
			t.Errorf("ratelimit_key(%q): unexpected error %v", ok, err)
		}
	}

	for _, bad := range []string{"header:", "user"} {
		if err := rule.ValidateVar(bad, "ratelimit_key"); err == nil {
			t.Errorf("ratelimit_key(%q): expected error", bad)
		}
	}
}

// TestRegisterValidation 测试注册自定义验证.
func TestRegisterValidation(t *testing.T) {
	err := rule.RegisterValidation("even_length", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String())%2 == 0
	})
	if err != nil {
		t.Fatalf("Failed to register validation: %v", err)
	}

	if err := rule.ValidateVar("test", "even_length"); err != nil {
		t.Errorf("Expected no error for even length string, got %v", err)
	}

	if err := rule.ValidateVar("test1", "even_length"); err == nil {
		t.Error("Expected error for odd length string, got nil")
	}
}
