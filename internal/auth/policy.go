package auth

// Operation names an endpoint guarded by the role table.
type Operation string

const (
	OpCancelledOrdersToday Operation = "cancelled_orders.today"
	OpListOrders           Operation = "purchase_orders.list"
	OpListAllOrders        Operation = "purchase_orders.all"
	OpCreateOnlineOrder    Operation = "purchase_orders.online"
	OpUpdateOrderStatus    Operation = "purchase_orders.status"
	OpSalesMetrics         Operation = "sales_metrics"
	OpTopProducts          Operation = "top_products.today"
	OpSessionStatus        Operation = "session.status"
	OpSessionStart         Operation = "session.start"
	OpSessionClose         Operation = "cash_tally.close"
)

var policy = map[Operation][]Role{
	OpCancelledOrdersToday: {RoleAdmin, RoleManager, RoleCashier},
	OpListOrders:           {RoleAdmin, RoleManager, RoleStaff, RoleCashier},
	OpListAllOrders:        {RoleAdmin, RoleManager},
	OpCreateOnlineOrder:    {RoleAdmin, RoleStaff, RoleCashier},
	OpUpdateOrderStatus:    {RoleAdmin, RoleManager, RoleStaff, RoleCashier},
	OpSalesMetrics:         {RoleAdmin, RoleManager, RoleCashier},
	OpTopProducts:          {RoleAdmin, RoleManager, RoleCashier},
	OpSessionStatus:        {RoleAdmin, RoleManager, RoleCashier},
	OpSessionStart:         {RoleAdmin, RoleManager, RoleCashier},
	OpSessionClose:         {RoleAdmin, RoleManager, RoleCashier},
}

// Allowed reports whether role may perform op. Unknown operations deny.
func Allowed(op Operation, role Role) bool {
	for _, r := range policy[op] {
		if r == role {
			return true
		}
	}
	return false
}
