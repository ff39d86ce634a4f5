package kiosk

// DonationAmount 金额选择页上的一个档位
type DonationAmount struct {
	Value    float64
	Label    string
	IsCustom bool
}

// Catalog 返回固定的六个捐款档位，顺序不变。
// 自定义档位Value为0，真实金额由数字键盘输入后确定
func Catalog() []DonationAmount {
	return []DonationAmount{
		{Value: 5, Label: "$5"},
		{Value: 10, Label: "$10"},
		{Value: 25, Label: "$25"},
		{Value: 50, Label: "$50"},
		{Value: 100, Label: "$100"},
		{Value: 0, Label: "Custom Amount", IsCustom: true},
	}
}
