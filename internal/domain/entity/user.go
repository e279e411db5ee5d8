package entity

// Roles válidos para las rutas del libro de stock.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
	RoleVendedor  = "vendedor"
	RoleSystem    = "system" // llamadas servicio a servicio (callbacks)
)

// User vista mínima del usuario (gestión de identidades fuera de este servicio).
type User struct {
	ID        string
	CompanyID string
	Name      string
	Role      string
	Status    string // active, inactive, suspended
}
