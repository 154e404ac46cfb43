package models

import "time"

// TokenPair — пара токенов, выдаваемая при входе и переиздании.
//
// Описание:
//   - AccessToken — короткоживущий JWT для доступа к API;
//   - RefreshToken — JWT-секрет, который клиент хранит в HttpOnly-cookie
//     и предъявляет для выпуска нового access-токена; на сервере активный
//     refresh-токен учитывается в Redis по ключу (userID, device);
//   - AccessExpiresAt — момент истечения access-токена (UTC).
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — JWT для обновления пары.
	RefreshToken string
	// AccessExpiresAt — время истечения действия access-токена (UTC).
	AccessExpiresAt time.Time
}

// LoginResult — результат успешного входа.
type LoginResult struct {
	UserID   int64
	Username string
	Tokens   TokenPair
}
