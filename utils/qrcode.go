package utils

import (
	"github.com/skip2/go-qrcode"
)

// GenerateQRCode 生成二维码，供大厅展示屏的捐款链接使用
func GenerateQRCode(text string) ([]byte, error) {
	return qrcode.Encode(text, qrcode.Medium, 256)
}
