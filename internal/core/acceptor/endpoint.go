package acceptor

import (
	"fmt"
	"net/netip"
)

// TokenEndpoint 计算写入 Token 的地址
//
// external 非空时直接使用；否则使用监听地址，未指定地址替换为同族回环地址。
func TokenEndpoint(listen netip.AddrPort, external string) (netip.AddrPort, error) {
	if external != "" {
		ap, err := netip.ParseAddrPort(external)
		if err != nil {
			return netip.AddrPort{}, fmt.Errorf("解析对外地址失败: %w", err)
		}
		return ap, nil
	}

	addr := listen.Addr().Unmap()
	if addr.IsUnspecified() {
		if addr.Is4() {
			addr = netip.AddrFrom4([4]byte{127, 0, 0, 1})
		} else {
			addr = netip.IPv6Loopback()
		}
	}
	return netip.AddrPortFrom(addr, listen.Port()), nil
}
