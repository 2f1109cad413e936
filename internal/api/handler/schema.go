package handler

// --- Requests ---

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// createMaestroRequest mirrors the back-office form. creadoPor is accepted
// for compatibility but the authenticated caller is recorded instead.
type createMaestroRequest struct {
	Nombre    string   `json:"nombre"    validate:"required"`
	Saldo     *float64 `json:"saldo"`
	CreadoPor string   `json:"creadoPor"`
}

// createMovementRequest mirrors the back-office form. maestroNombre and
// responsable are derived server side and ignored here.
type createMovementRequest struct {
	MaestroID     string  `json:"maestroId"     validate:"required"`
	MaestroNombre string  `json:"maestroNombre"`
	Tipo          string  `json:"tipo"          validate:"required,oneof=ENTRADA SALIDA"`
	Cantidad      float64 `json:"cantidad"      validate:"gt=0"`
	Responsable   string  `json:"responsable"`
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=ADMIN USER"`
}

// --- Responses ---

type maestroResponse struct {
	ID           string  `json:"id"`
	Nombre       string  `json:"nombre"`
	Saldo        float64 `json:"saldo"`
	SaldoInicial float64 `json:"saldoInicial"`
	CreadoPor    string  `json:"creadoPor"`
	CreatedAt    string  `json:"createdAt"`
}

type movementResponse struct {
	ID            string  `json:"id"`
	MaestroID     string  `json:"maestroId"`
	MaestroNombre string  `json:"maestroNombre"`
	Tipo          string  `json:"tipo"`
	Cantidad      float64 `json:"cantidad"`
	Responsable   string  `json:"responsable"`
	Fecha         string  `json:"fecha"`
}

type createMovementResponse struct {
	movementResponse
	// Saldo is omitted on replays.
	Saldo *float64 `json:"saldo,omitempty"`
}

type balanceResponse struct {
	MaestroID    string  `json:"maestroId"`
	Saldo        float64 `json:"saldo"`
	SaldoInicial float64 `json:"saldoInicial"`
	Recomputed   float64 `json:"recomputed"`
	Movements    int     `json:"movements"`
	Consistent   bool    `json:"consistent"`
}

type balancePointResponse struct {
	Fecha string  `json:"fecha"`
	Saldo float64 `json:"saldo"`
}

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}
