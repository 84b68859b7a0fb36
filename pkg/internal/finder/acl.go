package finder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yeisme/filedock/pkg/configs"
)

// Permission ACL 权限位.
type Permission uint32

const (
	PermFolderView Permission = 1 << iota
	PermFolderCreate
	PermFolderRename
	PermFolderDelete
	PermFileView
	PermFileCreate
	PermFileRename
	PermFileDelete
	PermImageResize
	PermImageResizeCustom
)

// WildcardAny 规则中匹配任意角色或资源类型.
const WildcardAny = "*"

var permissionNames = map[string]Permission{
	"FOLDER_VIEW":         PermFolderView,
	"FOLDER_CREATE":       PermFolderCreate,
	"FOLDER_RENAME":       PermFolderRename,
	"FOLDER_DELETE":       PermFolderDelete,
	"FILE_VIEW":           PermFileView,
	"FILE_CREATE":         PermFileCreate,
	"FILE_RENAME":         PermFileRename,
	"FILE_DELETE":         PermFileDelete,
	"IMAGE_RESIZE":        PermImageResize,
	"IMAGE_RESIZE_CUSTOM": PermImageResizeCustom,
}

// ParsePermission 解析权限名，例如 "FILE_CREATE"，大小写不敏感.
func ParsePermission(name string) (Permission, error) {
	p, ok := permissionNames[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown permission %q", name)
	}

	return p, nil
}

// Has 报告 p 是否包含 q 的全部位.
func (p Permission) Has(q Permission) bool {
	return p&q == q
}

func parsePermissions(names []string) (Permission, error) {
	var mask Permission

	for _, n := range names {
		p, err := ParsePermission(n)
		if err != nil {
			return 0, err
		}

		mask |= p
	}

	return mask, nil
}

type aclRule struct {
	role         string
	resourceType string
	folder       string
	allow        Permission
	deny         Permission
}

// ACL 按角色、资源类型和目录计算权限掩码.
type ACL struct {
	rules []aclRule
}

// NewACL 由配置构建 ACL.
// 规则按目录深度升序，同一目录下通配角色先于具体角色、通配资源类型先于具体资源类型，
// 后应用的规则覆盖先应用的规则.
func NewACL(cfgs []configs.ACLRuleConfig) (*ACL, error) {
	rules := make([]aclRule, 0, len(cfgs))

	for _, c := range cfgs {
		allow, err := parsePermissions(c.Allow)
		if err != nil {
			return nil, fmt.Errorf("acl rule %s/%s: %w", c.Role, c.ResourceType, err)
		}

		deny, err := parsePermissions(c.Deny)
		if err != nil {
			return nil, fmt.Errorf("acl rule %s/%s: %w", c.Role, c.ResourceType, err)
		}

		folder, err := NormalizeFolder(c.Folder)
		if err != nil {
			return nil, fmt.Errorf("acl rule %s/%s: %w", c.Role, c.ResourceType, err)
		}

		rules = append(rules, aclRule{
			role:         c.Role,
			resourceType: c.ResourceType,
			folder:       folder,
			allow:        allow,
			deny:         deny,
		})
	}

	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if len(a.folder) != len(b.folder) {
			return len(a.folder) < len(b.folder)
		}

		if (a.role == WildcardAny) != (b.role == WildcardAny) {
			return a.role == WildcardAny
		}

		return a.resourceType == WildcardAny && b.resourceType != WildcardAny
	})

	return &ACL{rules: rules}, nil
}

// Mask 返回 role 在 resourceType 的 folder 目录下的权限掩码.
// folder 必须已经过 NormalizeFolder.
func (a *ACL) Mask(role, resourceType, folder string) Permission {
	var mask Permission

	for _, r := range a.rules {
		if r.role != WildcardAny && r.role != role {
			continue
		}

		if r.resourceType != WildcardAny && r.resourceType != resourceType {
			continue
		}

		if !strings.HasPrefix(folder, r.folder) {
			continue
		}

		mask |= r.allow
		mask &^= r.deny
	}

	return mask
}
