package clock

import "time"

// Now testlerde sabitlenebilsin diye değişken olarak tutulur.
var Now = time.Now

var loc = time.UTC

// SetTimezone: okunur zaman damgalarının üretileceği saat dilimini ayarlar.
// Depolar tek bölgede çalıştığı için sunucu genelinde tek dilim yeterli.
func SetTimezone(name string) error {
	l, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	loc = l
	return nil
}

// Meta: her mutasyona yazılan zaman çifti; ts makineler, Time insanlar için.
type Meta struct {
	Ts   int64  // epoch ms
	Time string // "02.01.2006, 15:04:05"
}

func NowMeta() Meta {
	t := Now().In(loc)
	return Meta{
		Ts:   t.UnixMilli(),
		Time: t.Format("02.01.2006, 15:04:05"),
	}
}
