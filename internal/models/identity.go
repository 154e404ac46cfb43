package models

// Identity — аутентифицированная личность запроса.
//
// Строится напрямую из claims access-токена (stateless): никаких походов
// в БД или кэш при проверке access-токена не выполняется.
type Identity struct {
	UserID   int64
	Username string
	Email    string
}
