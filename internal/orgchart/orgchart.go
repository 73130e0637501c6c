package orgchart

const NodeTypeEmployee = "employee"

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type NodeData struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Position      string `json:"position"`
	Role          string `json:"role"`
	RoleLevel     int    `json:"roleLevel"`
	Department    string `json:"department"`
	DepartmentID  *int64 `json:"departmentId"`
	ManagerID     *int64 `json:"managerId"`
	CanManage     bool   `json:"canManage"`
	IsCurrentUser bool   `json:"isCurrentUser"`
	IsAdmin       bool   `json:"isAdmin"`
	TeamSize      int    `json:"teamSize"`
}

type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type Stats struct {
	TotalVisible  int `json:"totalVisible"`
	Manageable    int `json:"manageable"`
	DirectReports int `json:"directReports"`
	Departments   int `json:"departments"`
	Depth         int `json:"depth"`
}

type Chart struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Stats Stats  `json:"stats"`
}

type VisibleResponse struct {
	UserIDs []int64 `json:"userIds"`
}
